package sheets

import (
	"errors"
	"net/http"
	"reflect"
	"testing"

	"google.golang.org/api/googleapi"

	"github.com/stake-plus/activity-tickets/src/records"
)

func TestClassify(t *testing.T) {
	missing := &googleapi.Error{Code: http.StatusNotFound, Message: "Requested entity was not found."}
	if !errors.Is(classify(missing), records.ErrNotFound) {
		t.Fatal("expected 404 to map to ErrNotFound")
	}

	badSheet := &googleapi.Error{Code: http.StatusBadRequest, Message: "Unable to parse range: 'Nope'!A1:A56"}
	if !errors.Is(classify(badSheet), records.ErrNotFound) {
		t.Fatal("expected unknown sheet to map to ErrNotFound")
	}

	denied := &googleapi.Error{Code: http.StatusForbidden, Message: "The caller does not have permission"}
	if errors.Is(classify(denied), records.ErrNotFound) {
		t.Fatal("expected 403 to stay as is")
	}
	if classify(nil) != nil {
		t.Fatal("expected nil to stay nil")
	}
}

func TestFillRequests(t *testing.T) {
	green := records.Color{Red: 0.3, Green: 0.7, Blue: 0.3}
	reqs := fillRequests(0, 0, []int{1, 9}, green)
	if len(reqs) != 2 {
		t.Fatalf("expected a request per row, got %d", len(reqs))
	}

	second := reqs[1].RepeatCell
	if second == nil {
		t.Fatal("expected a repeat cell request")
	}
	if second.Range.StartRowIndex != 8 || second.Range.EndRowIndex != 9 {
		t.Fatalf("expected zero-based row 8, got %d..%d", second.Range.StartRowIndex, second.Range.EndRowIndex)
	}
	if second.Range.StartColumnIndex != 0 || second.Range.EndColumnIndex != 1 {
		t.Fatalf("expected column A, got %d..%d", second.Range.StartColumnIndex, second.Range.EndColumnIndex)
	}
	want := []string{"SheetId", "StartRowIndex", "StartColumnIndex"}
	if !reflect.DeepEqual(second.Range.ForceSendFields, want) {
		t.Fatalf("expected zero indexes to be sent, got %v", second.Range.ForceSendFields)
	}
	rgb := second.Cell.UserEnteredFormat.BackgroundColorStyle.RgbColor
	if rgb.Red != 0.3 || rgb.Green != 0.7 || rgb.Blue != 0.3 {
		t.Fatalf("unexpected fill %+v", rgb)
	}
	if second.Fields != "userEnteredFormat.backgroundColorStyle" {
		t.Fatalf("unexpected field mask %q", second.Fields)
	}
}
