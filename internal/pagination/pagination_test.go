package pagination

import "testing"

func TestDefaults(t *testing.T) {
	t.Run("fills_zero_values", func(t *testing.T) {
		req := PageRequest{}
		req.Defaults()
		if req.Page != 1 || req.PageSize != DefaultPageSize {
			t.Errorf("expected page 1 size %d, got page %d size %d", DefaultPageSize, req.Page, req.PageSize)
		}
	})

	t.Run("clamps_oversized_page_size", func(t *testing.T) {
		req := PageRequest{Page: 2, PageSize: 500}
		req.Defaults()
		if req.PageSize != MaxPageSize {
			t.Errorf("expected page size clamped to %d, got %d", MaxPageSize, req.PageSize)
		}
	})

	t.Run("offset_follows_page", func(t *testing.T) {
		req := PageRequest{Page: 3, PageSize: 20}
		if got := req.Offset(); got != 40 {
			t.Errorf("expected offset 40, got %d", got)
		}
	})
}

func TestNewPageResponse(t *testing.T) {
	resp := NewPageResponse[string](nil, 1, 20, 41)
	if resp.Data == nil {
		t.Error("expected empty slice, not nil")
	}
	if resp.TotalPages != 3 {
		t.Errorf("expected 3 pages for 41 items of 20, got %d", resp.TotalPages)
	}
}
