// Package dynamo stores the commit-state sequence number in DynamoDB so that
// several processes reading the same log agree on the current generation.
//
// Table schema:
//   - Partition key: log_id (string)
//   - Sort key: seq (number), one item per committed generation
//
// Create table with:
//
//	aws dynamodb create-table \
//	  --table-name walcache-commit-state \
//	  --attribute-definitions AttributeName=log_id,AttributeType=S AttributeName=seq,AttributeType=N \
//	  --key-schema AttributeName=log_id,KeyType=HASH AttributeName=seq,KeyType=RANGE \
//	  --billing-mode PAY_PER_REQUEST
package dynamo
