package trace

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
)

func bprintf(f string, args ...interface{}) []byte {
	return []byte(fmt.Sprintf(f, args...))
}

func (o *OpNop) MarshalJSON() ([]byte, error) {
	return bprintf(`{"op":%d}`, OP_NOP), nil
}

func (o *OpExit) MarshalJSON() ([]byte, error) {
	return bprintf(`{"op":%d}`, OP_EXIT), nil
}

func (o *OpCore) MarshalJSON() ([]byte, error) {
	name, _ := json.Marshal(o.Name)
	return bprintf(`{"op":%d,"num":%d,"name":%s}`, OP_CORE, o.Num, name), nil
}

func (o *OpStep) MarshalJSON() ([]byte, error) {
	return bprintf(`{"op":%d,"addr":%d,"ins":"%s"}`, OP_STEP, o.Addr, hex.EncodeToString(o.Ins)), nil
}

func (o *OpReg) MarshalJSON() ([]byte, error) {
	return bprintf(`{"op":%d,"num":%d,"val":%d}`, OP_REG, o.Num, o.Val), nil
}

func (o *OpTime) MarshalJSON() ([]byte, error) {
	return bprintf(`{"op":%d,"sec":%d,"atto":%d}`, OP_TIME, o.Sec, o.Atto), nil
}

func (o *OpMemRead) MarshalJSON() ([]byte, error) {
	return bprintf(`{"op":%d,"addr":%d,"val":%d}`, OP_MEM_READ, o.Addr, o.Val), nil
}

func (o *OpMemWrite) MarshalJSON() ([]byte, error) {
	return bprintf(`{"op":%d,"addr":%d,"val":%d}`, OP_MEM_WRITE, o.Addr, o.Val), nil
}

func (o *OpMemMap) MarshalJSON() ([]byte, error) {
	desc, _ := json.Marshal(o.Desc)
	return bprintf(`{"op":%d,"addr":%d,"size":%d,"prot":%d,"desc":%s}`, OP_MEM_MAP, o.Addr, o.Size, o.Prot, desc), nil
}

func (o *OpIntr) MarshalJSON() ([]byte, error) {
	return bprintf(`{"op":%d,"line":%d}`, OP_INTR, o.Line), nil
}

func (o *OpKeyframe) MarshalJSON() ([]byte, error) {
	ops, err := json.Marshal(o.Ops)
	if err != nil {
		return nil, err
	}
	return bprintf(`{"op":%d,"ops":%s}`, OP_KEYFRAME, ops), nil
}

func (o *OpFrame) MarshalJSON() ([]byte, error) {
	ops, err := json.Marshal(o.Ops)
	if err != nil {
		return nil, err
	}
	return bprintf(`{"op":%d,"ops":%s}`, OP_FRAME, ops), nil
}
