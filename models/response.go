package models

// Envelope wraps every JSON response.
type Envelope struct {
	OK      bool    `json:"ok"`
	Data    []any   `json:"data"`
	Extra   any     `json:"extra"`
	Message *string `json:"message"`
}

// Success builds an ok envelope carrying extra and an optional message.
func Success(extra any, message string) Envelope {
	return Envelope{OK: true, Data: []any{}, Extra: extra, Message: optionalMessage(message)}
}

// List builds an ok envelope whose data field holds items.
func List[T any](items []T) Envelope {
	data := make([]any, 0, len(items))
	for _, it := range items {
		data = append(data, it)
	}
	return Envelope{OK: true, Data: data}
}

// Failure builds an ok:false envelope.
func Failure(message string) Envelope {
	return Envelope{OK: false, Data: []any{}, Message: optionalMessage(message)}
}

func optionalMessage(message string) *string {
	if message == "" {
		return nil
	}
	return &message
}
