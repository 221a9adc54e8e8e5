// Command symcore simplifies and differentiates expressions from the command
// line, and serves the engine over HTTP or MCP.
//
// Usage:
//
//	symcore simplify '{"type":"func","name":"sqrt","args":[{"type":"num","value":"8"}]}'
//	symcore diff --var x expr.json
//	symcore serve --addr :8080
//	symcore mcp
package main

func main() {
	Execute()
}
