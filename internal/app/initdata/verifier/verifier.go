package verifier

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	initErrors "github.com/Miraines/MoonyAndStarry/initdata-service/internal/domain/initdata/errors"
)

const (
	hashKey     = "hash"
	authDateKey = "auth_date"
	webAppData  = "WebAppData"
)

// Options is the per-call policy. MaxAge <= 0 disables expiry checks.
type Options struct {
	MaxAge time.Duration
	Now    func() time.Time
}

func (o Options) now() time.Time {
	if o.Now == nil {
		return time.Now().UTC()
	}
	return o.Now().UTC()
}

// Verify checks Telegram Mini App init data against the bot token.
// https://core.telegram.org/bots/webapps#validating-data-received-via-the-mini-app
func Verify(initData, token string, opts Options) error {
	if strings.TrimSpace(initData) == "" {
		return initErrors.ErrEmptyPayload
	}
	if token == "" {
		return initErrors.ErrMissingSecret
	}

	q, err := url.ParseQuery(initData)
	if err != nil {
		return initErrors.NewMalformed(err)
	}

	var (
		hash     string
		authDate time.Time
		hasDate  bool
	)
	pairs := make([]string, 0, len(q))
	for k, values := range q {
		if len(values) == 0 {
			continue
		}
		if k == hashKey {
			hash = values[0]
			continue
		}
		if k == authDateKey {
			unix, err := strconv.ParseInt(values[0], 10, 64)
			if err != nil {
				return initErrors.ErrInvalidAuthDate
			}
			authDate, hasDate = time.Unix(unix, 0).UTC(), true
		}
		pairs = append(pairs, k+"="+values[0])
	}

	if hash == "" {
		return initErrors.ErrMissingHash
	}

	if opts.MaxAge > 0 {
		if !hasDate {
			return initErrors.ErrMissingAuthDate
		}
		// граница включительно: authDate+maxAge == now ещё валидно
		if authDate.Add(opts.MaxAge).Before(opts.now()) {
			return initErrors.ErrExpired
		}
	}

	sort.Strings(pairs)
	if !HexEqual(ComputeHash(strings.Join(pairs, "\n"), token), hash) {
		return initErrors.ErrInvalidHash
	}
	return nil
}

// DataCheckString builds the signed form of q: first value of every key
// except hash, as key=value, sorted by key and joined with \n.
func DataCheckString(q url.Values) string {
	pairs := make([]string, 0, len(q))
	for k, values := range q {
		if k == hashKey || len(values) == 0 {
			continue
		}
		pairs = append(pairs, k+"="+values[0])
	}
	sort.Strings(pairs)
	return strings.Join(pairs, "\n")
}

// SecretKey derives the MAC key as HMAC-SHA256("WebAppData", token).
func SecretKey(token string) []byte {
	mac := hmac.New(sha256.New, []byte(webAppData))
	mac.Write([]byte(token))
	return mac.Sum(nil)
}

// ComputeHash returns the lowercase hex HMAC of dataCheckString under the
// key derived from token.
func ComputeHash(dataCheckString, token string) string {
	mac := hmac.New(sha256.New, SecretKey(token))
	mac.Write([]byte(dataCheckString))
	return hex.EncodeToString(mac.Sum(nil))
}

// Sign produces a query string carrying fields, auth_date and a valid hash.
// A zero authDate leaves auth_date out.
func Sign(fields map[string]string, token string, authDate time.Time) string {
	q := make(url.Values, len(fields)+2)
	for k, v := range fields {
		if k == hashKey {
			continue
		}
		q.Set(k, v)
	}
	if !authDate.IsZero() {
		q.Set(authDateKey, strconv.FormatInt(authDate.Unix(), 10))
	}
	q.Set(hashKey, ComputeHash(DataCheckString(q), token))
	return q.Encode()
}

// HexEqual compares two hex strings in constant time, ignoring ASCII case.
// Only the length check may return early.
func HexEqual(a, b string) bool {
	if a == "" || b == "" || len(a) != len(b) {
		return false
	}
	var diff byte
	for i := 0; i < len(a); i++ {
		diff |= (a[i] | 0x20) ^ (b[i] | 0x20)
	}
	return diff == 0
}
