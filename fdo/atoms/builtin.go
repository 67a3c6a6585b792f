package atoms

import "sync"

// Protocol identifiers. The verbose stream starts with the wire code of
// uni_start_stream which is why protoUni must stay zero and its first atom
// code must stay one.
const (
	protoUni   byte = 0
	protoMan   byte = 1
	protoMat   byte = 2
	protoAct   byte = 3
	protoDE    byte = 4
	protoIDB   byte = 5
	protoSM    byte = 6
	protoChat  byte = 7
	protoIf    byte = 8
	protoVar   byte = 9
	protoAsync byte = 10
	protoXfer  byte = 11
)

var (
	builtinOnce sync.Once
	builtin     *Table
)

// Builtin returns the process wide immutable symbol table.
func Builtin() *Table {
	builtinOnce.Do(func() {
		builtin = buildBuiltin()
	})
	return builtin
}

func buildBuiltin() *Table {
	t := newTable()

	rows := []AtomDefinition{
		// stream control
		{Mnemonic: "uni_start_stream", Proto: protoUni, Code: 1, Args: []ArgType{ArgHexByte}},
		{Mnemonic: "uni_end_stream", Proto: protoUni, Code: 2, Args: []ArgType{ArgHexByte}},
		{Mnemonic: "uni_abort_stream", Proto: protoUni, Code: 3},
		{Mnemonic: "uni_wait_on", Proto: protoUni, Code: 4},
		{Mnemonic: "uni_wait_off", Proto: protoUni, Code: 5},
		{Mnemonic: "uni_start_loop", Proto: protoUni, Code: 6, Args: []ArgType{ArgInteger}},
		{Mnemonic: "uni_end_loop", Proto: protoUni, Code: 7},
		{Mnemonic: "uni_use_last_atom_string", Proto: protoUni, Code: 8},
		{Mnemonic: "uni_hold_queue", Proto: protoUni, Code: 9},
		{Mnemonic: "uni_release_queue", Proto: protoUni, Code: 10},

		// object management
		{Mnemonic: "man_start_object", Proto: protoMan, Code: 1, Args: []ArgType{ArgEnum, ArgString}},
		{Mnemonic: "man_end_object", Proto: protoMan, Code: 2},
		{Mnemonic: "man_end_context", Proto: protoMan, Code: 3},
		{Mnemonic: "man_set_context_relative", Proto: protoMan, Code: 4, Args: []ArgType{ArgGID}},
		{Mnemonic: "man_set_context_index", Proto: protoMan, Code: 5, Args: []ArgType{ArgInteger}},
		{Mnemonic: "man_append_data", Proto: protoMan, Code: 6, Args: []ArgType{ArgString}},
		{Mnemonic: "man_preset_title", Proto: protoMan, Code: 7, Args: []ArgType{ArgString}},
		{Mnemonic: "man_preset_gid", Proto: protoMan, Code: 8, Args: []ArgType{ArgGID}},
		{Mnemonic: "man_update_display", Proto: protoMan, Code: 9},
		{Mnemonic: "man_clear_object", Proto: protoMan, Code: 10},
		{Mnemonic: "man_close_update", Proto: protoMan, Code: 11},

		// object attributes
		{Mnemonic: "mat_object_id", Proto: protoMat, Code: 1, Args: []ArgType{ArgGID}},
		{Mnemonic: "mat_orientation", Proto: protoMat, Code: 2, Args: []ArgType{ArgEnum}},
		{Mnemonic: "mat_position", Proto: protoMat, Code: 3, Args: []ArgType{ArgEnum}},
		{Mnemonic: "mat_precise_x", Proto: protoMat, Code: 4, Args: []ArgType{ArgInteger}},
		{Mnemonic: "mat_precise_y", Proto: protoMat, Code: 5, Args: []ArgType{ArgInteger}},
		{Mnemonic: "mat_precise_width", Proto: protoMat, Code: 6, Args: []ArgType{ArgInteger}},
		{Mnemonic: "mat_precise_height", Proto: protoMat, Code: 7, Args: []ArgType{ArgInteger}},
		{Mnemonic: "mat_title", Proto: protoMat, Code: 8, Args: []ArgType{ArgString}},
		{Mnemonic: "mat_object_color", Proto: protoMat, Code: 9, Args: []ArgType{ArgOpaque}},
		{Mnemonic: "mat_font_sis", Proto: protoMat, Code: 10, Args: []ArgType{ArgOpaque}},
		{Mnemonic: "mat_art_id", Proto: protoMat, Code: 11, Args: []ArgType{ArgGID}},
		{Mnemonic: "mat_relative_tag", Proto: protoMat, Code: 12, Args: []ArgType{ArgInteger}},
		{Mnemonic: "mat_bool_writeable", Proto: protoMat, Code: 13, Args: []ArgType{ArgHexByte}},
		{Mnemonic: "mat_bool_default", Proto: protoMat, Code: 14, Args: []ArgType{ArgHexByte}},
		{Mnemonic: "mat_capacity", Proto: protoMat, Code: 15, Args: []ArgType{ArgInteger}},

		// actions
		{Mnemonic: "act_set_criterion", Proto: protoAct, Code: 1, Args: []ArgType{ArgOpaque}},
		{Mnemonic: "act_do_action", Proto: protoAct, Code: 2, Args: []ArgType{ArgEnum}},
		{Mnemonic: "act_replace_action", Proto: protoAct, Code: 3, Args: []ArgType{ArgOpaque}},
		{Mnemonic: "act_replace_select_action", Proto: protoAct, Code: 4, Args: []ArgType{ArgOpaque}},
		{Mnemonic: "act_append_select_action", Proto: protoAct, Code: 5, Args: []ArgType{ArgOpaque}},
		{Mnemonic: "act_prepend_select_action", Proto: protoAct, Code: 6, Args: []ArgType{ArgOpaque}},
		{Mnemonic: "act_insert_select_action", Proto: protoAct, Code: 7, Args: []ArgType{ArgOpaque}},
		{Mnemonic: "act_set_db_id", Proto: protoAct, Code: 8, Args: []ArgType{ArgGID}},

		// data entry
		{Mnemonic: "de_start_extraction", Proto: protoDE, Code: 1},
		{Mnemonic: "de_end_extraction", Proto: protoDE, Code: 2},
		{Mnemonic: "de_data", Proto: protoDE, Code: 3, Args: []ArgType{ArgString}},
		{Mnemonic: "de_typed_data", Proto: protoDE, Code: 4, Args: []ArgType{ArgOpaque}},
		{Mnemonic: "de_ez_send_form", Proto: protoDE, Code: 5},
		{Mnemonic: "de_ez_send_field", Proto: protoDE, Code: 6, Args: []ArgType{ArgInteger}},

		// indexed database
		{Mnemonic: "idb_start_context", Proto: protoIDB, Code: 1, Args: []ArgType{ArgGID}},
		{Mnemonic: "idb_end_context", Proto: protoIDB, Code: 2},
		{Mnemonic: "idb_data", Proto: protoIDB, Code: 3, Args: []ArgType{ArgOpaque}},
		{Mnemonic: "idb_append_data", Proto: protoIDB, Code: 4, Args: []ArgType{ArgOpaque}},
		{Mnemonic: "idb_get_data", Proto: protoIDB, Code: 5},
		{Mnemonic: "idb_get_value", Proto: protoIDB, Code: 6},
		{Mnemonic: "idb_exists", Proto: protoIDB, Code: 7, Args: []ArgType{ArgGID}},
		{Mnemonic: "idb_delete", Proto: protoIDB, Code: 8, Args: []ArgType{ArgGID}},
		{Mnemonic: "idb_atr_globalid", Proto: protoIDB, Code: 9, Args: []ArgType{ArgGID}},

		// stream machine
		{Mnemonic: "sm_set_object_id", Proto: protoSM, Code: 1, Args: []ArgType{ArgGID}},
		{Mnemonic: "sm_send_k1", Proto: protoSM, Code: 2, Args: []ArgType{ArgGID}},
		{Mnemonic: "sm_send_token_arg", Proto: protoSM, Code: 3, Args: []ArgType{ArgString}},
		{Mnemonic: "sm_send_token_raw", Proto: protoSM, Code: 4, Args: []ArgType{ArgOpaque}},

		// chat
		{Mnemonic: "chat_add_user", Proto: protoChat, Code: 1, Args: []ArgType{ArgString}},
		{Mnemonic: "chat_remove_user", Proto: protoChat, Code: 2, Args: []ArgType{ArgString}},
		{Mnemonic: "chat_clear", Proto: protoChat, Code: 3},

		// conditionals and variables
		{Mnemonic: "if_last_return_true_then", Proto: protoIf, Code: 1, Args: []ArgType{ArgInteger}},
		{Mnemonic: "if_last_return_false_then", Proto: protoIf, Code: 2, Args: []ArgType{ArgInteger}},
		{Mnemonic: "var_number_set", Proto: protoVar, Code: 1, Args: []ArgType{ArgInteger}},
		{Mnemonic: "var_string_set", Proto: protoVar, Code: 2, Args: []ArgType{ArgString}},
		{Mnemonic: "var_number_get", Proto: protoVar, Code: 3},

		// async and transfers
		{Mnemonic: "async_exec_class", Proto: protoAsync, Code: 1, Args: []ArgType{ArgHexByte}},
		{Mnemonic: "async_alert", Proto: protoAsync, Code: 2, Args: []ArgType{ArgString}},
		{Mnemonic: "xfer_start", Proto: protoXfer, Code: 1},
		{Mnemonic: "xfer_end", Proto: protoXfer, Code: 2},
	}
	for _, r := range rows {
		t.add(r)
	}

	// object classes for man_start_object
	for name, code := range map[string]byte{
		"independent":   0x01,
		"window":        0x02,
		"view":          0x03,
		"editable_view": 0x04,
		"select_list":   0x05,
		"trigger":       0x06,
		"ornament":      0x07,
		"org_group":     0x08,
		"select_group":  0x09,
		"dod_form":      0x0a,
	} {
		t.addEnum(name, code)
	}
	// orientation values for mat_orientation / mat_position
	for name, code := range map[string]byte{
		"vff": 0x10,
		"vfc": 0x11,
		"vcc": 0x12,
		"hff": 0x13,
		"hcf": 0x14,
		"hcc": 0x15,
	} {
		t.addEnum(name, code)
	}
	// action kinds for act_do_action
	for name, code := range map[string]byte{
		"open":   0x20,
		"close":  0x21,
		"send":   0x22,
		"cancel": 0x23,
	} {
		t.addEnum(name, code)
	}
	return t
}
