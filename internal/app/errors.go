package app

import (
	"errors"
	"fmt"

	"github.com/Guilhem-Bonnet/berriz-playback/internal/domain"
)

// ErrorKind identifie la famille d'un échec de résolution.
// Les consommateurs testent le Kind, jamais le texte du message.
type ErrorKind string

const (
	KindMissingCookies  ErrorKind = "missing_cookies"
	KindUnauthorized    ErrorKind = "unauthorized"
	KindHTTPStatus      ErrorKind = "http_status"
	KindFanclubOnly     ErrorKind = "fanclub_only"
	KindInvalidResponse ErrorKind = "invalid_response"

	// Non fatals: journalisés puis ignorés.
	KindTitleFetchFailed ErrorKind = "title_fetch_failed"
	KindDecodeFailed     ErrorKind = "decode_failed"
)

// Terminal indique si l'échec interrompt la résolution et finit en ErrorRecord.
func (k ErrorKind) Terminal() bool {
	switch k {
	case KindMissingCookies, KindUnauthorized, KindHTTPStatus, KindFanclubOnly, KindInvalidResponse:
		return true
	default:
		return false
	}
}

const (
	codeMissingCookies = "MISSING_COOKIES"
	codeFanclubOnly    = "FS_MD9010"
	codeSuccess        = "0000"
	typeFanclubOnly    = "FANCLUB_ONLY"

	msgMissingCookies = "Required cookies not found. Please ensure you are logged into berriz.in."
	// Le popup propose un rechargement quand il voit "401 Unauthorized".
	msgUnauthorized = "401 Unauthorized: Please refresh the page"
)

// ResolveError est l'unique forme d'erreur produite par la chaîne de résolution.
// Seuls les champs pertinents pour le Kind sont renseignés.
type ResolveError struct {
	Kind    ErrorKind
	Message string
	// Code est le code applicatif de l'API distante (ex: FS_MD9010).
	Code           string
	Status         int
	MissingCookies []string
	Err            error
}

func (e *ResolveError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return e.Message
	}
	if e.Message == "" {
		return e.Err.Error()
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *ResolveError) Unwrap() error { return e.Err }

// IsKind rapporte si err (ou une erreur enveloppée) est une ResolveError du kind donné.
func IsKind(err error, kind ErrorKind) bool {
	var re *ResolveError
	if errors.As(err, &re) {
		return re.Kind == kind
	}
	return false
}

func errMissingCookies(names []string) *ResolveError {
	return &ResolveError{
		Kind:           KindMissingCookies,
		Message:        msgMissingCookies,
		Code:           codeMissingCookies,
		MissingCookies: names,
	}
}

func errUnauthorized() *ResolveError {
	return &ResolveError{Kind: KindUnauthorized, Message: msgUnauthorized, Status: 401}
}

func errHTTPStatus(status int) *ResolveError {
	return &ResolveError{
		Kind:    KindHTTPStatus,
		Message: fmt.Sprintf("API request failed with status %d", status),
		Status:  status,
	}
}

func errFanclubOnly(code string) *ResolveError {
	return &ResolveError{Kind: KindFanclubOnly, Message: typeFanclubOnly, Code: code}
}

func errInvalidResponse(code string, cause error) *ResolveError {
	msg := "API response: " + code
	if code == "" {
		msg = "INVALID_API_RESPONSE"
	}
	return &ResolveError{Kind: KindInvalidResponse, Message: msg, Code: code, Err: cause}
}

// asTerminal garantit un Kind terminal: une erreur non classée devient un échec de requête.
func asTerminal(err error) *ResolveError {
	var re *ResolveError
	if errors.As(err, &re) && re.Kind.Terminal() {
		return re
	}
	return &ResolveError{Kind: KindHTTPStatus, Message: "API request failed", Err: err}
}

// toEntryError convertit n'importe quelle erreur terminale en charge utile d'ErrorRecord.
func toEntryError(err error) domain.EntryError {
	var re *ResolveError
	if !errors.As(err, &re) {
		return domain.EntryError{Message: err.Error()}
	}
	out := domain.EntryError{
		Message: re.Error(),
		Code:    re.Code,
		Status:  re.Status,
	}
	switch re.Kind {
	case KindMissingCookies:
		out.IsMissingCookies = true
		out.MissingCookies = append([]string(nil), re.MissingCookies...)
	case KindFanclubOnly:
		out.FanclubOnly = true
		out.Type = typeFanclubOnly
	}
	return out
}
