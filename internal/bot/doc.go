// Package bot is the Telegram surface: the Bot API client, the update
// handler that turns chat messages into download requests, and the
// operator commands.
package bot
