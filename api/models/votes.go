package models

type RegisterVoteRequest struct {
	OptionIndex *int   `json:"optionIndex"`
	Name        string `json:"name,omitempty"`
}

type OptionVoters struct {
	Voters []string `json:"voters"`
}

// VoterDetailsResponse groups voter display names by option index. Only the
// poll owner ever receives it.
type VoterDetailsResponse struct {
	VoterDetails []OptionVoters `json:"voterDetails"`
	TotalVotes   int            `json:"totalVotes"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
