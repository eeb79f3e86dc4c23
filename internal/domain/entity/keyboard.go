package entity

// Button klaviatura tugmasi. Inline tugmada CallbackData yoki URL bo'ladi.
type Button struct {
	Text           string
	CallbackData   string
	URL            string
	RequestContact bool
}

// Keyboard transportdan mustaqil klaviatura tavsifi
type Keyboard struct {
	Inline  bool
	Rows    [][]Button
	OneTime bool
	Remove  bool
}

// Empty klaviatura yo'qmi
func (k *Keyboard) Empty() bool {
	return k == nil || (!k.Remove && len(k.Rows) == 0)
}
