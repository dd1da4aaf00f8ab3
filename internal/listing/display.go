package listing

import "github.com/neutralface-io/nfai-web/internal/models"

// FormatAddress shortens a wallet address to its first and last four characters.
func FormatAddress(address string) string {
	r := []rune(address)
	if len(r) <= 8 {
		return address
	}
	return string(r[:4]) + "..." + string(r[len(r)-4:])
}

// DisplayName is the author's username, else the shortened wallet, else Anonymous.
func DisplayName(author *models.Author) string {
	if author == nil {
		return "Anonymous"
	}
	if author.Username != "" {
		return author.Username
	}
	if author.WalletAddress == "" {
		return "Anonymous"
	}
	return FormatAddress(author.WalletAddress)
}
