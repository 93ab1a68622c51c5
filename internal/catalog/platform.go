package catalog

import "runtime"

// Platform returns the API platform identifier for the running binary,
// e.g. "linuxx64" or "darwinarm64".
func Platform() string {
	return platformFor(runtime.GOOS, runtime.GOARCH)
}

func platformFor(goos, goarch string) string {
	var osName string
	switch goos {
	case "linux", "darwin", "windows":
		osName = goos
	default:
		osName = "universal"
	}

	var arch string
	switch goarch {
	case "arm64":
		arch = "arm64"
	case "arm":
		arch = "arm32hf"
	case "386":
		arch = "x32"
	default:
		arch = "x64"
	}
	return osName + arch
}
