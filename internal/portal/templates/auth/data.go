package auth

const defaultAction = "/user/login/"

// LoginPageData encapsulates rendering state for the sign-in screen.
type LoginPageData struct {
	Email  string
	Action string
}

// FormAction returns where the form posts, defaulting to the login route.
func (d LoginPageData) FormAction() string {
	if d.Action == "" {
		return defaultAction
	}
	return d.Action
}
