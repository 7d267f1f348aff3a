package realtime

import (
	"encoding/json"

	"github.com/caretone/intake-core/core/tools"
)

// Server event type tags. These are the wire contract; the dispatcher
// switches on them and ignores everything it does not know.
const (
	EventSessionCreated               = "session.created"
	EventSessionUpdated               = "session.updated"
	EventInputTranscriptionCompleted  = "conversation.item.input_audio_transcription.completed"
	EventOutputTextDelta              = "response.output_text.delta"
	EventOutputTextDone               = "response.output_text.done"
	EventOutputAudioTranscriptDelta   = "response.output_audio_transcript.delta"
	EventOutputAudioTranscriptDone    = "response.output_audio_transcript.done"
	EventFunctionCallArgumentsDone    = "response.function_call_arguments.done"
	EventResponseDone                 = "response.done"
	EventError                        = "error"
	EventInputAudioBufferSpeechStart  = "input_audio_buffer.speech_started"
	EventInputAudioBufferSpeechEnded  = "input_audio_buffer.speech_stopped"
)

type inputTranscriptionCompletedEvent struct {
	Transcript string `json:"transcript"`
}

type outputTextDoneEvent struct {
	Text string `json:"text"`
}

type outputAudioTranscriptDoneEvent struct {
	Transcript string `json:"transcript"`
}

type functionCallArgumentsDoneEvent struct {
	CallID    string `json:"call_id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type responseDoneEvent struct {
	Response struct {
		Status        string          `json:"status"`
		StatusDetails json.RawMessage `json:"status_details"`
	} `json:"response"`
}

type errorEvent struct {
	Error json.RawMessage `json:"error"`
}

// Outbound messages.

type sessionUpdate struct {
	Type    string        `json:"type"`
	Session sessionConfig `json:"session"`
}

type sessionConfig struct {
	Type         string             `json:"type"`
	Model        string             `json:"model"`
	Instructions string             `json:"instructions"`
	Tools        []tools.Definition `json:"tools"`
	Audio        audioConfig        `json:"audio"`
}

type audioConfig struct {
	Input  audioInputConfig  `json:"input"`
	Output audioOutputConfig `json:"output"`
}

type audioInputConfig struct {
	Transcription transcriptionConfig `json:"transcription"`
	TurnDetection turnDetectionConfig `json:"turn_detection"`
}

type transcriptionConfig struct {
	Model    string `json:"model"`
	Language string `json:"language"`
}

type turnDetectionConfig struct {
	Type              string `json:"type"`
	Eagerness         string `json:"eagerness"`
	CreateResponse    bool   `json:"create_response"`
	InterruptResponse bool   `json:"interrupt_response"`
}

type audioOutputConfig struct {
	Voice string `json:"voice"`
}

type conversationItemCreate struct {
	Type string           `json:"type"`
	Item conversationItem `json:"item"`
}

type conversationItem struct {
	Type    string        `json:"type"`
	Role    string        `json:"role,omitempty"`
	Content []itemContent `json:"content,omitempty"`
	CallID  string        `json:"call_id,omitempty"`
	Output  string        `json:"output,omitempty"`
}

type itemContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type responseCreate struct {
	Type string `json:"type"`
}

func userMessageItem(text string) conversationItemCreate {
	return conversationItemCreate{
		Type: "conversation.item.create",
		Item: conversationItem{
			Type:    "message",
			Role:    "user",
			Content: []itemContent{{Type: "input_text", Text: text}},
		},
	}
}

func functionCallOutputItem(callID, output string) conversationItemCreate {
	return conversationItemCreate{
		Type: "conversation.item.create",
		Item: conversationItem{
			Type:   "function_call_output",
			CallID: callID,
			Output: output,
		},
	}
}
