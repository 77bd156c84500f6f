package zmachine

import "fmt"

// opcodeName produces a human-readable label for diagnostics; it isn't
// exhaustive (EXT opcodes beyond the common set fall back to numeric
// form) since it only needs to make a fatal-error message legible.
func opcodeName(ins instruction) string {
	var table map[uint8]string
	switch ins.count {
	case countOP0:
		table = op0Names
	case countOP1:
		table = op1Names
	case countOP2:
		table = op2Names
	case countVAR:
		table = varNames
	case countEXT:
		table = extNames
	}
	if name, ok := table[ins.number]; ok {
		return name
	}
	return fmt.Sprintf("%s:%d", ins.count, ins.number)
}

func (c operandCount) String() string {
	switch c {
	case countOP0:
		return "0OP"
	case countOP1:
		return "1OP"
	case countOP2:
		return "2OP"
	case countVAR:
		return "VAR"
	default:
		return "EXT"
	}
}

var op0Names = map[uint8]string{
	0: "rtrue", 1: "rfalse", 2: "print", 3: "print_ret", 4: "nop",
	5: "save", 6: "restore", 7: "restart", 8: "ret_popped", 9: "pop/catch",
	10: "quit", 11: "new_line", 12: "show_status", 13: "verify", 15: "piracy",
}

var op1Names = map[uint8]string{
	0: "jz", 1: "get_sibling", 2: "get_child", 3: "get_parent", 4: "get_prop_len",
	5: "inc", 6: "dec", 7: "print_addr", 8: "call_1s", 9: "remove_obj",
	10: "print_obj", 11: "ret", 12: "jump", 13: "print_paddr", 14: "load", 15: "not/call_1n",
}

var op2Names = map[uint8]string{
	1: "je", 2: "jl", 3: "jg", 4: "dec_chk", 5: "inc_chk", 6: "jin", 7: "test",
	8: "or", 9: "and", 10: "test_attr", 11: "set_attr", 12: "clear_attr",
	13: "store", 14: "insert_obj", 15: "loadw", 16: "loadb", 17: "get_prop",
	18: "get_prop_addr", 19: "get_next_prop", 20: "add", 21: "sub", 22: "mul",
	23: "div", 24: "mod", 25: "call_2s", 26: "call_2n", 27: "set_colour", 28: "throw",
}

var varNames = map[uint8]string{
	0: "call/call_vs", 1: "storew", 2: "storeb", 3: "put_prop", 4: "sread/aread",
	5: "print_char", 6: "print_num", 7: "random", 8: "push", 9: "pull",
	10: "split_window", 11: "set_window", 12: "call_vs2", 13: "erase_window",
	14: "erase_line", 15: "set_cursor", 16: "get_cursor", 17: "set_text_style",
	18: "buffer_mode", 19: "output_stream", 20: "input_stream", 21: "sound_effect",
	22: "read_char", 23: "scan_table", 24: "not", 25: "call_vn", 26: "call_vn2",
	27: "tokenise", 28: "encode_text", 29: "copy_table", 30: "print_table",
	31: "check_arg_count",
}

var extNames = map[uint8]string{
	0: "save", 1: "restore", 2: "log_shift", 3: "art_shift", 4: "set_font",
	9: "save_undo", 10: "restore_undo", 11: "print_unicode", 12: "check_unicode",
	13: "set_true_colour",
}
