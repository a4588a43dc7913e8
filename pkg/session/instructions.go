package session

import (
	"fmt"
	"io"
	"strings"
)

// ShowCookieExtractionGuide writes step-by-step instructions for copying the session cookies out of a browser
func ShowCookieExtractionGuide(w io.Writer) {
	line := strings.Repeat("=", 72)
	fmt.Fprintln(w, line)
	fmt.Fprintln(w, "INSTAGRAM COOKIE EXTRACTION GUIDE")
	fmt.Fprintln(w, line)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "igfetch replays your browser session to read posts that need a login.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "STEP 1: Open https://www.instagram.com and log in")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "STEP 2: Open Developer Tools")
	fmt.Fprintln(w, "   Chrome/Edge/Brave/Firefox: F12 or Ctrl+Shift+I (Cmd+Option+I on Mac)")
	fmt.Fprintln(w, "   Safari: enable the Develop menu in Preferences, then Cmd+Option+I")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "STEP 3: Find the cookies")
	fmt.Fprintln(w, "   Application (Chrome) or Storage (Firefox) tab > Cookies > https://www.instagram.com")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "STEP 4: Copy these values")
	fmt.Fprintln(w, "   sessionid    long string containing %3A, required")
	fmt.Fprintln(w, "   csrftoken    32 characters, recommended")
	fmt.Fprintln(w, "   ds_user_id   numeric, optional")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "SECURITY")
	fmt.Fprintln(w, "   These cookies give full access to the account. Never share them.")
	fmt.Fprintln(w, "   igfetch keeps them in the OS keychain or an encrypted file.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Then run: igfetch auth login")
	fmt.Fprintln(w, line)
}

// ShowQuickExtractGuide writes the short version of the guide
func ShowQuickExtractGuide(w io.Writer) {
	fmt.Fprintln(w, "Quick cookie extraction:")
	fmt.Fprintln(w, "  1. Log in at instagram.com")
	fmt.Fprintln(w, "  2. F12 > Application/Storage > Cookies > instagram.com")
	fmt.Fprintln(w, "  3. Copy sessionid and csrftoken")
	fmt.Fprintln(w, "  4. Run igfetch auth login, or export IGFETCH_SESSION_ID")
}
