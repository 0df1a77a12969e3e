package soliscloud

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha1"
	"encoding/base64"
	"net/http"
	"time"
)

const contentType = "application/json"

// Sign generates the authentication headers for a SolisCloud POST request.
// The API verifies an HMAC-SHA1 signature over the method, the base64 MD5 of
// the exact body bytes, the content type, the Date header and the endpoint
// path. Because the date is part of the signed string, headers must be
// recomputed for every request and can never be cached.
func Sign(key, secret, body, path string, now time.Time) http.Header {
	sum := md5.Sum([]byte(body))
	contentMD5 := base64.StdEncoding.EncodeToString(sum[:])

	date := now.UTC().Format(http.TimeFormat)

	stringToSign := "POST\n" + contentMD5 + "\n" + contentType + "\n" + date + "\n" + path

	mac := hmac.New(sha1.New, []byte(secret))
	mac.Write([]byte(stringToSign))
	signature := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	headers := http.Header{}
	headers.Set("Content-Type", contentType)
	headers.Set("Content-MD5", contentMD5)
	headers.Set("Date", date)
	headers.Set("Authorization", "API "+key+":"+signature)

	return headers
}
