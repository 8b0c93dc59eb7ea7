package layouts

import "strings"

// AppName is the product name shown in titles and the navigation brand.
const AppName = "JWT Authentication"

func pageTitle(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return AppName
	}
	return title + " | " + AppName
}
