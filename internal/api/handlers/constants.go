package handlers

const (
	maxHistoryPageSize = 100 // Maximum page size for run history
	maxRequestTextLen  = 8000
)
