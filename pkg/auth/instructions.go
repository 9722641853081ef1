package auth

import (
	"fmt"
	"strings"
)

// ShowCookieExtractionGuide displays step-by-step instructions for extracting
// the tracker session cookie and CSRF token from a browser
func ShowCookieExtractionGuide() {
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("📚 SESSION COOKIE EXTRACTION GUIDE")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()

	fmt.Println("This tool talks to the follower tracker with your browser session.")
	fmt.Println("Follow these steps to extract the cookie and CSRF token:")
	fmt.Println()

	fmt.Println("🌐 STEP 1: Log in to the tracker in your browser")
	fmt.Println("   - Open the tracker site and sign in")
	fmt.Println("   - Make sure your dashboard loads")
	fmt.Println()

	fmt.Println("🔧 STEP 2: Open Developer Tools")
	fmt.Println("   • Chrome/Edge/Brave: Press F12 or Ctrl+Shift+I (Cmd+Option+I on Mac)")
	fmt.Println("   • Firefox: Press F12 or Ctrl+Shift+I (Cmd+Option+I on Mac)")
	fmt.Println("   • Safari: Enable Developer menu in Preferences, then Cmd+Option+I")
	fmt.Println()

	fmt.Println("🍪 STEP 3: Find the session cookie")
	fmt.Println("   1. Go to 'Application' tab (Chrome) or 'Storage' tab (Firefox)")
	fmt.Println("   2. In the left sidebar, expand 'Cookies' and click the tracker origin")
	fmt.Println("   3. Copy the value of the cookie named 'session'")
	fmt.Println()

	fmt.Println("🔑 STEP 4: Find the CSRF token")
	fmt.Println("   1. View the page source of any dashboard page")
	fmt.Println("   2. Search for 'csrf_token'")
	fmt.Println("   3. Copy the value attribute of the hidden input (or meta tag)")
	fmt.Println()

	fmt.Println("💡 TIPS:")
	fmt.Println("   • Copy the ENTIRE value (everything after the = sign)")
	fmt.Println("   • Don't include quotes or semicolons")
	fmt.Println("   • Sessions expire, so you may need to refresh these periodically")
	fmt.Println()

	fmt.Println("⚠️  SECURITY WARNING:")
	fmt.Println("   • These values give FULL access to your tracker account")
	fmt.Println("   • NEVER share them with anyone")
	fmt.Println("   • Store them securely (this tool encrypts them)")
	fmt.Println()
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()
}

// ShowQuickExtractGuide shows a condensed version for experienced users
func ShowQuickExtractGuide() {
	fmt.Println("\n🍪 Quick Guide: F12 → Application/Storage → Cookies → copy 'session'")
	fmt.Println("   CSRF token: page source → search 'csrf_token' → copy the value")
	fmt.Println("   Type 'help' for detailed instructions")
}
