package intent

import (
	"regexp"
	"strings"

	"sol-swap/pkg/apperror"
	"sol-swap/pkg/types"
)

// <amount> <token> to <token>, token being a symbol or a mint address
var swapCommandPattern = regexp.MustCompile(`(?i)^(\d+\.?\d*|\.\d+)\s+([A-Za-z0-9]+)\s+to\s+([A-Za-z0-9]+)$`)

// ParseSwapCommand parses a natural language swap command
// Examples:
//   - "swap 1 SOL to USDC"
//   - "0.5 usdc to bonk"
func ParseSwapCommand(command string) (*types.SwapRequest, error) {
	command = strings.Join(strings.Fields(command), " ")
	if len(command) >= 5 && strings.EqualFold(command[:5], "swap ") {
		command = command[5:]
	}

	matches := swapCommandPattern.FindStringSubmatch(command)
	if matches == nil {
		return nil, apperror.Validation("invalid swap command format. Expected: 'swap <amount> <token> to <token>' (e.g., 'swap 1 SOL to USDC')")
	}

	return &types.SwapRequest{
		Amount:      matches[1],
		SourceToken: matches[2],
		DestToken:   matches[3],
	}, nil
}
