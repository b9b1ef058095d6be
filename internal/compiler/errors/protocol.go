package errors

import "go.lsp.dev/protocol"

// DiagnosticSource is the source tag attached to LSP diagnostics.
const DiagnosticSource = "interop"

// ToProtocol converts the error to an LSP diagnostic. LSP positions are
// zero-based; a missing location maps to the start of the document.
func (e *CompilerError) ToProtocol() protocol.Diagnostic {
	line := e.Location.Line - 1
	if line < 0 {
		line = 0
	}
	col := e.Location.Column - 1
	if col < 0 {
		col = 0
	}
	start := protocol.Position{Line: uint32(line), Character: uint32(col)}

	return protocol.Diagnostic{
		Range:    protocol.Range{Start: start, End: start},
		Severity: protocolSeverity(e.Severity),
		Code:     string(e.Code),
		Source:   DiagnosticSource,
		Message:  e.Message,
	}
}

// ToProtocol converts every error in the list.
func (el ErrorList) ToProtocol() []protocol.Diagnostic {
	out := make([]protocol.Diagnostic, 0, len(el))
	for _, err := range el {
		out = append(out, err.ToProtocol())
	}
	return out
}

func protocolSeverity(severity ErrorSeverity) protocol.DiagnosticSeverity {
	switch severity {
	case SeverityError:
		return protocol.DiagnosticSeverityError
	case SeverityWarning:
		return protocol.DiagnosticSeverityWarning
	case SeverityInfo:
		return protocol.DiagnosticSeverityInformation
	default:
		return protocol.DiagnosticSeverityHint
	}
}
