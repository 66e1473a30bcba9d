package adapter

// QRRenderer turns a payload (deep link or redemption code) into an image a
// browser can display. Decoding the image yields the payload.
type QRRenderer interface {
	Render(payload string) (string, error)
}
