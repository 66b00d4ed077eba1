package domain

// Parameter names declared by the block.
const (
	// ParamConfigurationIndex is reserved for multi-configuration support. It is read and
	// validated but not otherwise used.
	ParamConfigurationIndex = "ConfigurationIndex"

	// ParamConnectionName names the connection opened on the external source.
	ParamConnectionName = "ConnectionName"
)

// Params holds the decoded block parameters.
type Params struct {
	ConfigurationIndex int    `json:"ConfigurationIndex" yaml:"ConfigurationIndex" mapstructure:"ConfigurationIndex"`
	ConnectionName     string `json:"ConnectionName" yaml:"ConnectionName" mapstructure:"ConnectionName"`
}

// ParameterType is the declared type of a block parameter.
type ParameterType string

const (
	ParameterInt    ParameterType = "int"
	ParameterString ParameterType = "string"
)

// ParameterMetadata describes one declared parameter.
type ParameterMetadata struct {
	Index int           `json:"index"`
	Name  string        `json:"name"`
	Type  ParameterType `json:"type"`
}

// DeclaredParameters lists the parameters the block reads at initialization.
func DeclaredParameters() []ParameterMetadata {
	return []ParameterMetadata{
		{Index: 0, Name: ParamConfigurationIndex, Type: ParameterInt},
		{Index: 1, Name: ParamConnectionName, Type: ParameterString},
	}
}

// PortInfo describes one port of the block.
type PortInfo struct {
	Index    int    `json:"index"`
	Size     int    `json:"size"`
	DataType string `json:"data_type"`
}

// PortsInfo is the port layout of the block.
type PortsInfo struct {
	Inputs  []PortInfo `json:"inputs"`
	Outputs []PortInfo `json:"outputs"`
}

// DeclaredPorts returns 0 inputs and ChannelCount scalar double outputs.
func DeclaredPorts() PortsInfo {
	info := PortsInfo{
		Inputs:  []PortInfo{},
		Outputs: make([]PortInfo, 0, ChannelCount),
	}
	for i := 0; i < ChannelCount; i++ {
		info.Outputs = append(info.Outputs, PortInfo{Index: i, Size: 1, DataType: "double"})
	}
	return info
}
