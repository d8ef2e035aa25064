package service

// Principal is the caller on whose behalf the upstream is called. Token is
// forwarded untouched; OwnerID keys locks and settlement records.
type Principal struct {
	Token   string
	OwnerID string
}
