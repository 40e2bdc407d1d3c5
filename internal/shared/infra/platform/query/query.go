package query

// ---------- Paginación / ordenamiento ----------

// OffsetPagination para paginación clásica (startIndex / page)
type OffsetPagination struct {
	Limit  int
	Offset int
}

// FromPage calcula el offset de una página que empieza en 1.
func FromPage(page, limit int) OffsetPagination {
	if page < 1 {
		page = 1
	}
	return OffsetPagination{Limit: limit, Offset: (page - 1) * limit}
}

// FromStartIndex calcula el offset de un índice que empieza en 1.
func FromStartIndex(startIndex, limit int) OffsetPagination {
	if startIndex < 1 {
		startIndex = 1
	}
	return OffsetPagination{Limit: limit, Offset: startIndex - 1}
}

// Sort indica campo y dirección.
type Sort struct {
	Field string // ej. "startdate_idx", "created_idx"
	Desc  bool
}
