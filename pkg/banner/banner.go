package banner

import (
	"fmt"
)

const banner = `
██╗  ██╗███████╗██╗     ██████╗ ██████╗ ███████╗███████╗██╗  ██╗
██║  ██║██╔════╝██║     ██╔══██╗██╔══██╗██╔════╝██╔════╝██║ ██╔╝
███████║█████╗  ██║     ██████╔╝██║  ██║█████╗  ███████╗█████╔╝
██╔══██║██╔══╝  ██║     ██╔═══╝ ██║  ██║██╔══╝  ╚════██║██╔═██╗
██║  ██║███████╗███████╗██║     ██████╔╝███████╗███████║██║  ██╗
╚═╝  ╚═╝╚══════╝╚══════╝╚═╝     ╚═════╝ ╚══════╝╚══════╝╚═╝  ╚═╝
`

// Print shows the startup banner with the effective runtime settings.
func Print(addr, dbPath, version string) {
	fmt.Print(banner)
	fmt.Println("== Config =====================================================")
	fmt.Printf("Listen:   %s\n", addr)
	fmt.Printf("DB Path:  %s\n", dbPath)
	if version != "" {
		fmt.Printf("Version:  %s\n", version)
	}
	fmt.Println("\n== Endpoints ==================================================")
	fmt.Println("POST /v1/sessions - Mint a new chat session token")
	fmt.Println("POST /v1/chat - Send a user message (JSON: session_token, message)")
	fmt.Println("GET  /v1/sessions/{token} - Fetch a session transcript")
	fmt.Println("GET  /v1/faqs - List knowledge-base entries")
	fmt.Println("GET  /v1/admin/escalations - Handler queue (admin key + X-Admin-ID)")
	fmt.Println("\n== Examples ===================================================")
	fmt.Printf("curl -X POST 'http://localhost%s/v1/sessions' -H 'X-API-Key: <frontend-key>'\n", addr)
	fmt.Printf("curl -X POST 'http://localhost%s/v1/chat' -H 'X-API-Key: <frontend-key>' -d '{\"session_token\":\"<t>\",\"message\":\"I need help with my order\"}'\n", addr)
}
