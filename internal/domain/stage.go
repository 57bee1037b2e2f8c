package domain

type StageName string

const (
	StageRecord   StageName = "record"
	StageGenerate StageName = "generate"
	StageLookup   StageName = "lookup"
	StagePreview  StageName = "preview"
	StageConfirm  StageName = "confirm"
	StageSend     StageName = "send"
	StageCancel   StageName = "cancel"
)

type Phase string

const (
	PhaseDraft Phase = "draft"
	PhaseSend  Phase = "send"
)
