package httpmsg

// Observer receives notifications as each start-line token is committed
// by a Parser. It replaces the protected virtual hooks of the original
// httpxx MessageParser with an injected capability; a nil Observer (the
// default) is equivalent to a no-op.
type Observer interface {
	// OnFirstToken is called once the first start-line token is complete.
	OnFirstToken(token string)
	// OnSecondToken is called once the second start-line token is complete.
	OnSecondToken(token string)
	// OnThirdToken is called once the third start-line token is complete.
	OnThirdToken(token string)
}

// noopObserver implements Observer with no-op methods; it is the default
// Observer for a Parser constructed without one.
type noopObserver struct{}

func (noopObserver) OnFirstToken(string)  {}
func (noopObserver) OnSecondToken(string) {}
func (noopObserver) OnThirdToken(string)  {}
