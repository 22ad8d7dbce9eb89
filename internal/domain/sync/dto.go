package sync

// ListRowsResponse ответ со строками ресурса
type ListRowsResponse struct {
	Data []Row `json:"data"`
}
