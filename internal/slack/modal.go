package slack

import (
	slackapi "github.com/slack-go/slack"
)

const (
	createEffortCallbackID = "create_effort"

	effortNameBlockID  = "effort_name_block"
	effortNameActionID = "effort_name_input"

	workstreamsBlockID  = "workstreams_block"
	workstreamsActionID = "workstreams_input"

	descriptionBlockID  = "description_block"
	descriptionActionID = "description_input"
)

// createEffortModal builds the "New Effort" dialog. The originating channel
// rides along in private metadata so the submission handler knows where to
// post the result.
func createEffortModal(channelID string) slackapi.ModalViewRequest {
	nameInput := slackapi.NewPlainTextInputBlockElement(
		plainText("e.g. Q3 Priorities"), effortNameActionID)

	workstreamsInput := slackapi.NewPlainTextInputBlockElement(
		plainText("Frontend, 40\nBackend, 35\nOps, 25"), workstreamsActionID)
	workstreamsInput.Multiline = true

	descriptionInput := slackapi.NewPlainTextInputBlockElement(
		plainText("What is this effort about?"), descriptionActionID)
	descriptionInput.Multiline = true

	nameBlock := slackapi.NewInputBlock(effortNameBlockID, plainText("Name"), nil, nameInput)

	workstreamsBlock := slackapi.NewInputBlock(workstreamsBlockID, plainText("Workstreams"),
		plainText("One per line: name, effort. Values are normalized to percentages."), workstreamsInput)

	descriptionBlock := slackapi.NewInputBlock(descriptionBlockID, plainText("Description"), nil, descriptionInput)
	descriptionBlock.Optional = true

	return slackapi.ModalViewRequest{
		Type:            slackapi.VTModal,
		Title:           plainText("New Effort"),
		Submit:          plainText("Create"),
		Close:           plainText("Cancel"),
		CallbackID:      createEffortCallbackID,
		PrivateMetadata: channelID,
		Blocks: slackapi.Blocks{
			BlockSet: []slackapi.Block{nameBlock, workstreamsBlock, descriptionBlock},
		},
	}
}
