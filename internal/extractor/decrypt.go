package extractor

import (
	"bytes"
	"fmt"
	"strings"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/insightdelivered/statement-ledger/internal/models"
)

var disableConfigDir sync.Once

// isEncrypted reports whether the file declares an encryption dictionary.
func isEncrypted(data []byte) bool {
	return bytes.Contains(data, []byte("/Encrypt"))
}

// decrypt removes encryption the PDF reader cannot handle itself, such as
// AES-256 (V5, R6), and returns the plaintext file. A rejected password is
// models.ErrIncorrectPassword.
func decrypt(data []byte, password models.Secret) ([]byte, error) {
	disableConfigDir.Do(api.DisableConfigDir)

	conf := model.NewDefaultConfiguration()
	conf.UserPW = password.Reveal()
	conf.ValidationMode = model.ValidationRelaxed
	conf.WriteObjectStream = false
	conf.WriteXRefStream = false

	var out bytes.Buffer
	if err := api.Decrypt(bytes.NewReader(data), &out, conf); err != nil {
		if wrongPassword(err) {
			return nil, models.ErrIncorrectPassword
		}
		msg := err.Error()
		if pw := password.Reveal(); pw != "" {
			msg = strings.ReplaceAll(msg, pw, "[redacted]")
		}
		return nil, fmt.Errorf("%w: %s", models.ErrCorruptDocument, msg)
	}
	return out.Bytes(), nil
}

// wrongPassword matches pdfcpu's "please provide the correct password" and
// "please provide the owner password" failures.
func wrongPassword(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "correct password") || strings.Contains(msg, "owner password")
}
