package cmd

// version is set at build time using -ldflags.
var version = "dev"

// AppName returns the name of the application.
func AppName() string {
	return "portal"
}

// Version returns the application version.
func Version() string {
	return version
}
