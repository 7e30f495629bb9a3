package shield

import (
	"encoding/json"
	"fmt"
	"strconv"
)

const realnameOperationNone = "None"

// Response is the envelope of every shield and combo answer.
type Response struct {
	Retcode int16  `json:"retcode"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// Client is the request context the transport must resolve before any
// operation runs.
type Client struct {
	Device string
	IP     string
}

type LoginRequest struct {
	Account  string `json:"account"`
	Password string `json:"password"`
	IsCrypto bool   `json:"is_crypto"`
}

type VerifyRequest struct {
	UID   UID    `json:"uid"`
	Token string `json:"token"`
}

// UID decodes from a JSON number or a numeric string; game clients send
// the latter.
type UID int64

func (u *UID) UnmarshalJSON(b []byte) error {
	var n json.Number
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		n = json.Number(s)
	} else if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	v, err := strconv.ParseInt(string(n), 10, 64)
	if err != nil {
		return fmt.Errorf("uid %q: %w", string(n), err)
	}
	*u = UID(v)
	return nil
}

// LoginResult is the session payload returned by login and verify.
type LoginResult struct {
	Account AccountData `json:"account"`
	// Does the user need to perform an ID check?
	RealpersonRequired  bool   `json:"realperson_required"`
	DeviceGrantRequired bool   `json:"device_grant_required"`
	SafeMobileRequired  bool   `json:"safe_mobile_required"`
	ReactivateRequired  bool   `json:"reactivate_required"`
	RealnameOperation   string `json:"realname_operation"`
}

// AccountData is the account snapshot of a LoginResult. Name, email and
// mobile are masked.
type AccountData struct {
	UID               int64   `json:"uid"`
	Name              string  `json:"name"`
	Email             string  `json:"email"`
	Mobile            string  `json:"mobile"`
	IsEmailVerify     bool    `json:"is_email_verify"`
	Realname          string  `json:"realname"`
	IdentityCard      string  `json:"identity_card"`
	Token             string  `json:"token"`
	Country           string  `json:"country"`
	DeviceGrantTicket *string `json:"device_grant_ticket"`
	ReactivateTicket  *string `json:"reactivate_ticket"`
}
