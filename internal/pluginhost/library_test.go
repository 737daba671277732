package pluginhost

import "testing"

func TestAcquireMissingFileFails(t *testing.T) {
	cache := newLibraryCache()

	_, err := cache.acquire("/nonexistent/effect.so", libraryKindEffect)
	if err == nil {
		t.Fatal("acquire of a missing file should fail")
	}
	if len(cache.paths()) != 0 {
		t.Errorf("paths() after a failed acquire = %v, want empty", cache.paths())
	}
}

func TestAcquireKindMismatchRejected(t *testing.T) {
	cache := newLibraryCache()
	cache.libs["/tmp/fake.so"] = &library{path: "/tmp/fake.so", kind: libraryKindEffect, refs: 1}

	_, err := cache.acquire("/tmp/fake.so", libraryKindGeneral)
	if err == nil {
		t.Fatal("acquiring an already-open path under a different kind should fail")
	}
}
