package room

type GetOrCreateInput struct {
	SessionID string
}

type GetInput struct {
	SessionID string
}

type DeleteInput struct {
	SessionID string
}
