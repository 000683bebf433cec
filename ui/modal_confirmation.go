package ui

type ConfirmationState struct {
	Active  bool
	Title   string
	Message string
}

func RenderConfirmationModal(state ConfirmationState, width, height int) string {
	const modalWidth = 60
	return RenderThreeSectionModal(
		state.Title,
		centeredLines(state.Message, modalWidth),
		FormatFooter("y", "Yes", "n", "No"),
		ModalTypeWarning,
		modalWidth,
		width,
		height,
	)
}
