package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestDecodeValue(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		single  string
		multi   []string
		wantErr bool
	}{
		{"bare string", `"B"`, "B", nil, false},
		{"numeric as string", `"4.2"`, "4.2", nil, false},
		{"option array", `["A","C"]`, "", []string{"A", "C"}, false},
		{"null clears", `null`, "", nil, false},
		{"unquoted number", `4.2`, "", nil, true},
		{"object", `{"answer":"B"}`, "", nil, true},
		{"boolean", `true`, "", nil, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := decodeValue(json.RawMessage(tc.raw))
			if tc.wantErr {
				if err == nil {
					t.Fatalf("decoded %q to %+v, want error", tc.raw, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("err = %v", err)
			}
			if got.Single != tc.single || len(got.Multi) != len(tc.multi) {
				t.Errorf("got %+v, want single=%q multi=%v", got, tc.single, tc.multi)
			}
		})
	}
}

// A malformed value must be a 400, never a silent answer clear.
func TestRecordAnswerRejectsMalformedValue(t *testing.T) {
	h := RecordAnswerHandler(Deps{})
	req := httptest.NewRequest("POST", "/exams/1/answers",
		strings.NewReader(`{"question_id": 3, "value": 4.2}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
