package types

// I2cStartRequest issues a start (or repeated start) condition on a bus.
// Takes no reply.
type I2cStartRequest struct {
	Bus uint8
}

// I2cStopRequest issues a stop condition on a bus. Takes no reply.
type I2cStopRequest struct {
	Bus uint8
}

// I2cWriteRequest writes one byte on a bus.
type I2cWriteRequest struct {
	Bus  uint8
	Data uint8
}

// I2cWriteReply carries the slave's acknowledge bit for the written byte.
type I2cWriteReply struct {
	Ack bool
}

// I2cReadRequest reads one byte from a bus; Ack tells the master whether
// to acknowledge the byte (false on the final read of a transfer).
type I2cReadRequest struct {
	Bus uint8
	Ack bool
}

// I2cReadReply carries the byte read from the bus.
type I2cReadReply struct {
	Data uint8
}

// Category implements Message.
func (I2cStartRequest) Category() Category { return CategoryI2C }

// Category implements Message.
func (I2cStopRequest) Category() Category { return CategoryI2C }

// Category implements Message.
func (I2cWriteRequest) Category() Category { return CategoryI2C }

// Category implements Message.
func (I2cWriteReply) Category() Category { return CategoryI2C }

// Category implements Message.
func (I2cReadRequest) Category() Category { return CategoryI2C }

// Category implements Message.
func (I2cReadReply) Category() Category { return CategoryI2C }
