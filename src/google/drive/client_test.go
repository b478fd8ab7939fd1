package drive

import (
	"errors"
	"net/http"
	"testing"

	"google.golang.org/api/googleapi"

	"github.com/stake-plus/activity-tickets/src/records"
)

func TestNameQuery(t *testing.T) {
	cases := []struct {
		meta records.FileMetadata
		want string
	}{
		{
			meta: records.FileMetadata{Name: "42-1700000000123-shot.png", ParentFolderID: "folder-1"},
			want: "name = '42-1700000000123-shot.png' and trashed = false and 'folder-1' in parents",
		},
		{
			meta: records.FileMetadata{Name: "42-1700000000123-it's.png"},
			want: `name = '42-1700000000123-it\'s.png' and trashed = false`,
		},
		{
			meta: records.FileMetadata{Name: `a\b.png`},
			want: `name = 'a\\b.png' and trashed = false`,
		},
	}
	for _, tc := range cases {
		if got := nameQuery(tc.meta); got != tc.want {
			t.Fatalf("nameQuery(%+v):\n got %s\nwant %s", tc.meta, got, tc.want)
		}
	}
}

func TestClassify(t *testing.T) {
	gone := &googleapi.Error{Code: http.StatusNotFound, Message: "File not found"}
	if !errors.Is(classify(gone), records.ErrNotFound) {
		t.Fatal("expected 404 to map to ErrNotFound")
	}
	busy := &googleapi.Error{Code: http.StatusServiceUnavailable}
	if errors.Is(classify(busy), records.ErrNotFound) {
		t.Fatal("expected 503 to stay as is")
	}
	if classify(nil) != nil {
		t.Fatal("expected nil to stay nil")
	}
}
