package version

import "testing"

func TestCurrent_Defaults(t *testing.T) {
	oldVersion, oldCommit, oldBuildTime := AppVersion, GitCommit, BuildTime
	t.Cleanup(func() {
		AppVersion, GitCommit, BuildTime = oldVersion, oldCommit, oldBuildTime
	})

	AppVersion = ""
	GitCommit = " "
	BuildTime = ""

	info := Current("")
	if info.Service != Unknown {
		t.Fatalf("expected service %q, got %q", Unknown, info.Service)
	}
	if info.Version != DevelopmentVersion {
		t.Fatalf("expected version %q, got %q", DevelopmentVersion, info.Version)
	}
	if info.Commit != Unknown || info.BuildTime != Unknown {
		t.Fatalf("expected unknown commit and build time, got %+v", info)
	}
}

func TestInfo_String(t *testing.T) {
	info := Info{Service: "config", Version: "v1.4.0", Commit: "abc123", BuildTime: "2026-01-02T03:04:05Z"}
	want := "config@v1.4.0 (commit=abc123, build_time=2026-01-02T03:04:05Z)"
	if got := info.String(); got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}
