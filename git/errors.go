package git

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/format/index"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/storage"
	platformerrors "github.com/jmgilman/go/errors"
)

// Codes raised by this package in addition to the platform set.
const (
	// CodeLocked indicates another writer holds a lock file (index.lock or
	// a reference lock) or updated a reference concurrently. Errors with
	// this code are classified retryable.
	CodeLocked platformerrors.ErrorCode = "LOCKED"

	// CodeFailedPrecondition indicates the repository cannot serve the
	// operation as configured, such as a worktree operation on a bare
	// repository.
	CodeFailedPrecondition platformerrors.ErrorCode = "FAILED_PRECONDITION"
)

// Facade errors with fixed messages. They are returned wrapped with
// operation context; match them with errors.Is.
var (
	// ErrNothingStaged is returned by Commit when the index does not differ
	// from the HEAD tree.
	ErrNothingStaged = platformerrors.New(platformerrors.CodeConflict, "nothing staged to commit")

	// ErrUnexpectedReferenceType is returned when a reference is neither
	// direct nor symbolic.
	ErrUnexpectedReferenceType = platformerrors.New(platformerrors.CodeInternal, "unexpected reference type")

	// ErrUnexpectedHead is returned when HEAD cannot be classified.
	ErrUnexpectedHead = platformerrors.New(platformerrors.CodeInternal, "unexpected HEAD state")

	// ErrBareRepository is returned by operations that need a working tree.
	ErrBareRepository = platformerrors.New(CodeFailedPrecondition, "operation requires a working tree")
)

// wrapError wraps an error with context, classifying it as a platform error type.
// It preserves the original error chain for errors.Is/errors.As compatibility.
// If err is nil, returns nil.
func wrapError(err error, context string) error {
	if err == nil {
		return nil
	}

	classified := classifyError(err)

	return fmt.Errorf("%s: %w", context, classified)
}

// invalidInput builds an argument error. Argument errors are raised before
// any repository handle is opened.
func invalidInput(format string, args ...any) error {
	return platformerrors.Newf(platformerrors.CodeInvalidInput, format, args...)
}

// retryable marks err as worth retrying. The platform table classifies
// codes it does not know as permanent, so LOCKED errors go through here.
func retryable(err error) error {
	return platformerrors.WithClassification(err, platformerrors.ClassificationRetryable)
}

// classifyError maps go-git errors to platform error types.
// The go-git error stays in the chain so callers can still match it.
// Platform errors and unknown errors are passed through unchanged.
//
//nolint:gocyclo,cyclop // High complexity is acceptable for error classification - each case is a simple mapping
func classifyError(err error) error {
	if err == nil {
		return nil
	}

	var platformErr platformerrors.PlatformError
	if errors.As(err, &platformErr) {
		return err
	}

	wrap := func(code platformerrors.ErrorCode, message string) error {
		return platformerrors.Wrap(err, code, message)
	}

	switch {
	// Concurrent writers → ErrLocked
	case errors.Is(err, storage.ErrReferenceHasChanged):
		return retryable(wrap(CodeLocked, "reference changed concurrently"))

	// Missing repositories, references and objects → ErrNotFound
	case errors.Is(err, gogit.ErrRepositoryNotExists):
		return wrap(platformerrors.CodeNotFound, "repository does not exist")
	case errors.Is(err, transport.ErrRepositoryNotFound):
		return wrap(platformerrors.CodeNotFound, "remote repository not found")
	case errors.Is(err, plumbing.ErrReferenceNotFound):
		return wrap(platformerrors.CodeNotFound, "reference not found")
	case errors.Is(err, plumbing.ErrObjectNotFound):
		return wrap(platformerrors.CodeNotFound, "object not found")
	case errors.Is(err, index.ErrEntryNotFound):
		return wrap(platformerrors.CodeNotFound, "index entry not found")
	case errors.Is(err, gogit.ErrRemoteNotFound):
		return wrap(platformerrors.CodeNotFound, "remote not found")
	case errors.Is(err, transport.ErrEmptyRemoteRepository):
		return wrap(platformerrors.CodeNotFound, "remote repository is empty")
	case errors.Is(err, os.ErrNotExist):
		return wrap(platformerrors.CodeNotFound, "path does not exist")

	// Already exists errors → ErrAlreadyExists
	case errors.Is(err, gogit.ErrRepositoryAlreadyExists):
		return wrap(platformerrors.CodeAlreadyExists, "repository already exists")
	case errors.Is(err, gogit.ErrRemoteExists):
		return wrap(platformerrors.CodeAlreadyExists, "remote already exists")

	// Authentication/Authorization errors → ErrUnauthorized
	case errors.Is(err, transport.ErrAuthenticationRequired):
		return wrap(platformerrors.CodeUnauthorized, "authentication required")
	case errors.Is(err, transport.ErrAuthorizationFailed):
		return wrap(platformerrors.CodeUnauthorized, "authorization failed")

	// Repository shape → ErrFailedPrecondition
	case errors.Is(err, gogit.ErrIsBareRepository):
		return wrap(CodeFailedPrecondition, "repository is bare")

	// Invalid input errors → ErrInvalidInput
	case errors.Is(err, gogit.ErrMissingURL):
		return wrap(platformerrors.CodeInvalidInput, "URL is required")
	case errors.Is(err, gogit.ErrInvalidReference):
		return wrap(platformerrors.CodeInvalidInput, "invalid reference")

	// Index state → ErrConflict
	case errors.Is(err, gogit.ErrEmptyCommit):
		return wrap(platformerrors.CodeConflict, "nothing staged to commit")

	// Transfers → ErrTimeout / ErrNetwork
	case errors.Is(err, context.DeadlineExceeded):
		return wrap(platformerrors.CodeTimeout, "operation timed out")
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return wrap(platformerrors.CodeNetwork, "network operation failed")
	}

	// Pass through unknown errors unchanged to preserve original information
	return err
}
