package ui

// User is the signed-in viewer as the auth provider reports it.
type User struct {
	ID              int64
	ProfileImageURL string
}

// AuthState is the auth provider's view of the session.
type AuthState struct {
	Loaded   bool
	SignedIn bool
	User     *User
}

// AuthProvider reports the current session.
type AuthProvider interface {
	AuthState() AuthState
}

// StaticAuth is an AuthProvider with a fixed state.
type StaticAuth AuthState

func (a StaticAuth) AuthState() AuthState {
	return AuthState(a)
}

// SignedIn is a loaded session for user.
func SignedIn(user User) StaticAuth {
	return StaticAuth{Loaded: true, SignedIn: true, User: &user}
}

// SignedOut is a loaded session with no user.
func SignedOut() StaticAuth {
	return StaticAuth{Loaded: true}
}
