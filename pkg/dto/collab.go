package dto

type CreateCollabRequest struct {
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	RequiredSkills []string `json:"required_skills"`
}

type ManageRequestRequest struct {
	ApplicantID string `json:"applicantId"`
	Action      string `json:"action"`
}

type RemoveCollaboratorRequest struct {
	MemberID string `json:"memberId"`
}

type UpdateCollabStatusRequest struct {
	Status string `json:"status"`
}
