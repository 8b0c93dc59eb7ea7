package partials

const (
	homePath   = "/"
	loginPath  = "/user/login"
	logoutPath = "/user/logout"
)
