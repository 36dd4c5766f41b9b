package pagination

import (
	"errors"
	"net/url"
	"testing"
)

func TestParseDefaults(t *testing.T) {
	params, err := Parse(url.Values{}, Options{})
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if params.Page != 1 {
		t.Fatalf("Page = %d, want 1", params.Page)
	}
	if params.Limit != DefaultLimit {
		t.Fatalf("Limit = %d, want %d", params.Limit, DefaultLimit)
	}
	if params.Offset() != 0 {
		t.Fatalf("Offset = %d, want 0", params.Offset())
	}
}

func TestParseExplicitValues(t *testing.T) {
	values := url.Values{"page": {"3"}, "limit": {"25"}}
	params, err := Parse(values, Options{})
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if params.Page != 3 || params.Limit != 25 {
		t.Fatalf("params = %+v", params)
	}
	if params.Offset() != 50 {
		t.Fatalf("Offset = %d, want 50", params.Offset())
	}
}

func TestParseRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name   string
		values url.Values
		want   error
	}{
		{"zero page", url.Values{"page": {"0"}}, ErrInvalidPage},
		{"negative page", url.Values{"page": {"-2"}}, ErrInvalidPage},
		{"non-numeric page", url.Values{"page": {"two"}}, ErrInvalidPage},
		{"zero limit", url.Values{"limit": {"0"}}, ErrInvalidLimit},
		{"limit above maximum", url.Values{"limit": {"101"}}, ErrInvalidLimit},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.values, Options{})
			if !errors.Is(err, tc.want) {
				t.Fatalf("error = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestParseHonoursCustomLimits(t *testing.T) {
	params, err := Parse(url.Values{}, Options{DefaultLimit: 10, MaxLimit: 50})
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if params.Limit != 10 {
		t.Fatalf("Limit = %d, want custom default 10", params.Limit)
	}

	if _, err := Parse(url.Values{"limit": {"51"}}, Options{DefaultLimit: 10, MaxLimit: 50}); !errors.Is(err, ErrInvalidLimit) {
		t.Fatalf("error = %v, want ErrInvalidLimit for custom maximum", err)
	}
}
