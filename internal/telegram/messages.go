package telegram

import (
	"fmt"
	"strings"
)

// formatHelp renders the command overview
func formatHelp() string {
	return `📖 *GitHub Bot Commands*

*Authorization*
/github_authorize - Get a GitHub authorization link for this chat

*Repositories*
/github_repos - List repositories for the authorized account

*Setup*
/settoken <token> - Store the bot token in settings
/setforward [chat_id] - Forward webhook events to a chat (defaults to this one)

Webhook events arrive automatically once your repository points its webhook at this bot.`
}

// formatAuthorizeLink renders the authorization link message
func formatAuthorizeLink(url string) string {
	return fmt.Sprintf("🔗 Open this link to authorize GitHub access for this chat:\n\n%s", url)
}

// formatRepoList renders the repository listing, one full name per line in
// the order GitHub returned them.
func formatRepoList(repos []string) string {
	if len(repos) == 0 {
		return "📦 No repositories found for the authorized account."
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📦 *Your repositories* (%d)\n\n", len(repos)))
	for _, name := range repos {
		sb.WriteString("• ")
		sb.WriteString(name)
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}
