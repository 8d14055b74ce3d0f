package event

type CreateEventRequest struct {
	Title string `json:"title"`
	// Date is YYYY-MM-DD.
	Date  string `json:"date"`
	Color string `json:"color"`
}
