package auth

import (
	"fmt"
	"io"
	"strings"
)

// ShowAppSetupGuide writes the steps for obtaining Graph app credentials
func ShowAppSetupGuide(w io.Writer) {
	rule := strings.Repeat("=", 72)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "GRAPH APP CREDENTIALS")
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Public page feeds are read with an app access token, which is derived")
	fmt.Fprintln(w, "from an app id and app secret.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "1. Open the developer console and create an app (any type that can")
	fmt.Fprintln(w, "   read public page content).")
	fmt.Fprintln(w, "2. In the app's basic settings, copy the App ID.")
	fmt.Fprintln(w, "3. Reveal and copy the App Secret.")
	fmt.Fprintln(w, "4. Store them:")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "     stopsum auth login --app-id <APP_ID>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "   The secret is prompted for and never echoed.")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Alternatively export %s and %s, or set graph.app_id and\n", EnvAppID, EnvAppSecret)
	fmt.Fprintln(w, "graph.app_secret in the config file.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "The app secret grants full control of the app. Never commit it.")
	fmt.Fprintln(w, rule)
}
