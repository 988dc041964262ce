package redline

// SetMaxVocab lowers the token vocabulary limit for the duration of a test.
func SetMaxVocab(n int) (restore func()) {
	prev := maxVocab
	maxVocab = n
	return func() { maxVocab = prev }
}
