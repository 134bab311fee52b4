// Package delivery hands finished artifacts to the requester, through a
// Telegram upload or, for files above the upload limit, a presigned object
// storage link.
package delivery
