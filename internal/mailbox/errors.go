package mailbox

import "errors"

var ErrMailboxUnavailable = errors.New("mailbox: mail provider unavailable")
