package storage

import (
	"errors"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

var ErrItemNotFound = errors.New("item not found in storage")
var ErrDuplicateItem = errors.New("item already exists in storage")

// isConditionalCheckFailed detects DynamoDB conditional-put rejections,
// the storage-level signal that a uniqueness constraint was violated.
func isConditionalCheckFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}
