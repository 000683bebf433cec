package testutil

// Canned query service replies
const (
	SuccessBody   = `{"success": true, "answer": "SKU 1042 has 12 units in stock."}`
	SuccessAnswer = "SKU 1042 has 12 units in stock."
	FailureBody   = `{"success": false, "message": "no matching data"}`
	NoAnswerBody  = `{"success": true}`
	MalformedBody = `{"success": true, "answer": "trunc`
	NonObjectBody = `["success", true]`
)
